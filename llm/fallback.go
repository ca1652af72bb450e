package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// Fallback wraps a Client: when the primary model reports overload the same
// prompt is retried once against FallbackModel. There is never more than
// one retry.
type Fallback struct {
	Client        Client
	FallbackModel string
	Logger        zerolog.Logger
}

// Generate implements Client.
func (f Fallback) Generate(ctx context.Context, req Request) (string, error) {
	if f.Client == nil {
		return "", &Error{Kind: KindUnavailable, Model: req.Model, Err: ErrNoClient}
	}

	text, err := f.Client.Generate(ctx, req)
	if err == nil {
		return text, nil
	}
	err = Wrap(err, req.Model)
	if !IsOverloaded(err) || f.FallbackModel == "" || f.FallbackModel == req.Model {
		return "", err
	}

	f.Logger.Info().Str("model", f.FallbackModel).Msg("primary model overloaded, retrying with fallback model")
	retry := req
	retry.Model = f.FallbackModel
	text, err = f.Client.Generate(ctx, retry)
	if err != nil {
		return "", Wrap(err, f.FallbackModel)
	}
	return text, nil
}
