package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/codana-ai/billing-sync/api/responses"
	paddlewebhook "github.com/codana-ai/billing-sync/internal/webhooks/paddle"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/metrics"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"github.com/codana-ai/billing-sync/pkg/types"
)

type PaddleWebhookService interface {
	HandleEvent(ctx context.Context, event *paddlewebhook.Event) error
}

type paddleSecretSource interface {
	SigningSecret() string
}

// PaddleWebhook receives Paddle notification deliveries. The signature gate
// is the only 401 in the service; once a delivery is authentic it is
// acknowledged unless the store write itself failed, so the provider only
// retries deliveries that stand a chance of succeeding later.
func PaddleWebhook(svc PaddleWebhookService, client paddleSecretSource, tolerance time.Duration, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method == http.MethodOptions {
			responses.WriteJSON(w, http.StatusOK, types.StatusResponse{Status: "ok"})
			return
		}

		if svc == nil || client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(paddle.SignatureHeader)
		if !paddle.VerifySignature(payload, client.SigningSecret(), sigHeader, tolerance) {
			m.IncSignatureRejection()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid signature"))
			return
		}

		var event paddlewebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			// Authentic but unparseable: acknowledge so the provider
			// does not redeliver a body that will never parse.
			if logg != nil {
				logg.Error(ctx, "discarding unparseable webhook body", err)
			}
			responses.WriteStatusSuccess(w)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteStatusSuccess(w)
	}
}
