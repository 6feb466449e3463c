package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet performs a raw GET against the backend and prints the response.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	resp, err := r.client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeRaw(resp.StatusCode, resp.Body, resp.IsJSON, cmd.Bool("pretty"))
}

// APIPost performs a raw POST against the backend and prints the response.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	var body []byte
	if data := cmd.String("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("%w: --data must be valid JSON", shared.ErrInvalidArgument)
		}
		body = []byte(data)
	}

	resp, err := r.client.Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeRaw(resp.StatusCode, resp.Body, resp.IsJSON, cmd.Bool("pretty"))
}

func (r *Runner) writeRaw(status int, body []byte, isJSON, pretty bool) error {
	r.writePlain("Status: %d\n", status)

	if isJSON && pretty {
		var data any
		if err := json.Unmarshal(body, &data); err == nil {
			return r.writeJSON(data, true)
		}
	}

	return r.writePlain("%s\n", string(body))
}
