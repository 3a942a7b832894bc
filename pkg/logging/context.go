package logging

import "context"

type modelIDKeyType struct{}
type tokenInfoKeyType struct{}

var (
	modelIDKey   = modelIDKeyType{}
	tokenInfoKey = tokenInfoKeyType{}
)

// WithModelID attaches the active model ID to the context so that log
// entries emitted below it carry the model.
func WithModelID(ctx context.Context, modelID string) context.Context {
	return context.WithValue(ctx, modelIDKey, modelID)
}

// GetModelID retrieves the model ID from the context.
func GetModelID(ctx context.Context) (string, bool) {
	modelID, ok := ctx.Value(modelIDKey).(string)
	return modelID, ok
}

// WithTokenInfo attaches token usage information to the context.
func WithTokenInfo(ctx context.Context, info *TokenInfo) context.Context {
	return context.WithValue(ctx, tokenInfoKey, info)
}

// GetTokenInfo retrieves token usage information from the context.
func GetTokenInfo(ctx context.Context) (*TokenInfo, bool) {
	info, ok := ctx.Value(tokenInfoKey).(*TokenInfo)
	return info, ok
}
