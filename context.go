package goSession

import "context"

type sourceContextKey struct{}

// WithSource attaches a caller-supplied origin label to ctx — typically the
// screen or component that triggered the operation. The Manager copies it
// into audit events so lifecycle transitions can be traced back to their
// trigger.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceContextKey{}, source)
}

func sourceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	source, _ := ctx.Value(sourceContextKey{}).(string)
	return source
}
