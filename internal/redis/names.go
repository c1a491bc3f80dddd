package redis

import (
	"context"
	"errors"
)

const DefaultNameKey = "moodchat:user_name"

// NameStore keeps the bot's remembered user name under a single key.
type NameStore struct {
	client *Client
	key    string
}

func NewNameStore(client *Client, key string) *NameStore {
	if key == "" {
		key = DefaultNameKey
	}
	return &NameStore{client: client, key: key}
}

func (s *NameStore) Name(ctx context.Context) (string, bool, error) {
	name, err := s.client.Get(ctx, s.key)
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *NameStore) SetName(ctx context.Context, name string) error {
	return s.client.Set(ctx, s.key, name, 0)
}

// Forget drops the remembered name.
func (s *NameStore) Forget(ctx context.Context) error {
	return s.client.Del(ctx, s.key)
}
