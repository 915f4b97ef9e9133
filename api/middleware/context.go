package middleware

import "context"

type contextKey string

const (
	ctxCustomerID    contextKey = "customer_id"
	ctxCustomerName  contextKey = "customer_name"
	ctxCustomerPhone contextKey = "customer_phone"
	ctxBearer        contextKey = "bearer"
)

func CustomerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerID).(string); ok {
		return v
	}
	return ""
}

func CustomerNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerName).(string); ok {
		return v
	}
	return ""
}

func CustomerPhoneFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCustomerPhone).(string); ok {
		return v
	}
	return ""
}

// BearerFromContext returns the customer's raw token so upstream calls made on
// their behalf can forward it.
func BearerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBearer).(string); ok {
		return v
	}
	return ""
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithBearer injects the customer's raw token into the context.
func WithBearer(ctx context.Context, bearer string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBearer, bearer)
}
