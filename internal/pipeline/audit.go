package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"

	"github.com/ShayCichocki/matchday/internal/decompose"
	"github.com/ShayCichocki/matchday/internal/store"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Audit statuses.
const (
	StatusOK               = "ok"
	StatusPartial          = "partial"
	StatusBlocked          = "blocked"
	StatusCancelled        = "cancelled"
	StatusFailed           = "failed"
	StatusModelUnavailable = "model_unavailable"
)

const auditTimeout = 2 * time.Second

func status(a models.FinalAnswer) string {
	if a.Partial {
		return StatusPartial
	}
	for _, d := range a.Diagnostics {
		if d.Blocked {
			return StatusBlocked
		}
	}
	return StatusOK
}

// audit stores the request outcome. Failures are logged and never change
// the answer.
func (p *Pipeline) audit(ctx context.Context, sctx models.StandardizedContext, in models.Intent, plan decompose.Plan, answer models.FinalAnswer, status string, log zerolog.Logger) {
	if p.recorder == nil {
		return
	}
	payload, err := auditPayload(in, plan, answer)
	if err != nil {
		log.Warn().Err(err).Msg("audit_payload_failed")
		return
	}

	// The request context may already be cancelled; the audit row should
	// still be written.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	err = p.recorder.RecordRequest(actx, store.AuditRecord{
		RequestID:  answer.RequestID,
		UserID:     sctx.UserID(),
		TeamID:     sctx.TeamID(),
		Intent:     string(answer.Intent),
		Complexity: string(answer.Complexity),
		Status:     status,
		Payload:    payload,
	})
	if err != nil {
		log.Warn().Err(err).Msg("audit_write_failed")
	}
}

// auditPayload renders the decisions behind an answer as JSON.
func auditPayload(in models.Intent, plan decompose.Plan, answer models.FinalAnswer) (string, error) {
	doc := `{}`
	sets := []struct {
		path  string
		value any
	}{
		{"intent.tag", string(in.Tag)},
		{"intent.source", string(in.Source)},
		{"intent.rule", in.Rule},
		{"intent.entities", in.Entities},
		{"intent.degraded", in.Degraded},
		{"complexity", string(answer.Complexity)},
		{"decomposition.fallback", plan.Fallback},
		{"decomposition.reason", plan.Reason},
		{"decomposition.subtasks", plan.Subtasks},
		{"diagnostics", answer.Diagnostics},
		{"partial", answer.Partial},
		{"answer_chars", len(answer.Text)},
	}
	var err error
	for _, s := range sets {
		doc, err = sjson.Set(doc, s.path, s.value)
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}
