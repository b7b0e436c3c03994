package internal

import (
	"context"
	"net/http"
)

const HeaderCorrelationId string = "Correlation-Id"

type ctxKeyCorrelationId struct{}

func CtxWithCorrelationId(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationId{}, correlationId)
}

func CorrelationIdFromCtx(ctx context.Context) string {
	item := ctx.Value(ctxKeyCorrelationId{})
	correlationId, ok := item.(string)
	if ok {
		return correlationId
	}
	return ""
}

// CorrelationIdFromRequest returns the caller supplied correlation id or a
// freshly generated one when the header is absent.
func CorrelationIdFromRequest(request *http.Request) string {
	if correlationId := request.Header.Get(HeaderCorrelationId); correlationId != "" {
		return correlationId
	}
	return GenerateId()
}
