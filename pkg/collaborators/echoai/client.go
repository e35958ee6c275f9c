// Package echoai is the placeholder AI collaborator. It renders the prompt
// template against the execution context and echoes it back, standing in
// for a real model integration.
package echoai

import (
	"context"

	"github.com/fluxohq/fluxo/pkg/template"
)

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Complete(_ context.Context, promptTemplate, model string, data map[string]any) (string, error) {
	rendered := template.Substitute(promptTemplate, data)

	return "[" + model + "] " + rendered, nil
}
