package settings

import "context"

type (
	Storage interface {
		GetVariable(ctx context.Context, name string) (*string, error)
		SetVariable(ctx context.Context, name, value string) error
	}
)
