package clients

import "context"

type Repo interface {
	Insert(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
}
