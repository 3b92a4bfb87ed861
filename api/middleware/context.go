package middleware

import "context"

type contextKey string

const (
	ctxFishermanID contextKey = "fisherman_id"
	ctxPlan        contextKey = "plan"
	ctxAccessID    contextKey = "access_id"
)

func FishermanIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxFishermanID).(string); ok {
		return v
	}
	return ""
}

func PlanFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPlan).(string); ok {
		return v
	}
	return ""
}

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithFishermanID injects the fisherman identifier into the context.
func WithFishermanID(ctx context.Context, fishermanID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxFishermanID, fishermanID)
}

// WithPlan injects the subscription plan into the context for downstream handlers.
func WithPlan(ctx context.Context, plan string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPlan, plan)
}
