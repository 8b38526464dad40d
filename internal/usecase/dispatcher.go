package usecase

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/domain/entity"
	"github.com/watusiii/tool-stopmotion/internal/domain/port"
)

// Dispatcher decodes inbound queue messages and routes them to the use case
// for their operation. Messages that cannot be decoded or routed go straight
// to the DLQ and are acked; redelivery cannot fix them.
type Dispatcher struct {
	retimeUC  *RetimeVideoUseCase
	extractUC *ExtractTimelineUseCase
	dlq       port.DLQPublisher
	logger    *zap.Logger
}

func NewDispatcher(retimeUC *RetimeVideoUseCase, extractUC *ExtractTimelineUseCase, dlq port.DLQPublisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		retimeUC:  retimeUC,
		extractUC: extractUC,
		dlq:       dlq,
		logger:    logger,
	}
}

func (d *Dispatcher) Execute(ctx context.Context, rawMsg []byte) error {
	var msg entity.RetimeRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		d.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = d.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	switch msg.Operation {
	case entity.OperationRetime, "":
		return d.retimeUC.Execute(ctx, msg, rawMsg)
	case entity.OperationExtractTimeline:
		return d.extractUC.Execute(ctx, msg, rawMsg)
	default:
		d.logger.Error("unknown operation", zap.String("operation", string(msg.Operation)))
		_ = d.dlq.PublishToDLQ(ctx, rawMsg, "unknown_operation: "+string(msg.Operation))
		return nil
	}
}
