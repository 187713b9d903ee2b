package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

var ErrAgentNotFound = errors.New("agent not found")

type AgentRepository interface {
	Save(ctx context.Context, name string, snapshot *qlearning.Snapshot) error
	GetByName(ctx context.Context, name string) (*qlearning.Snapshot, error)
	DeleteByName(ctx context.Context, name string) error
}

type dbAgent struct {
	client *redis.Client
}

func NewAgentRepository(client *redis.Client) AgentRepository {
	return &dbAgent{
		client: client,
	}
}

func (that *dbAgent) Save(ctx context.Context, name string, snapshot *qlearning.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal agent: %w", err)
	}

	agentKey := "agent:" + name
	err = that.client.Set(ctx, agentKey, snapshotJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set agent: %w", err)
	}

	return nil
}

func (that *dbAgent) GetByName(ctx context.Context, name string) (*qlearning.Snapshot, error) {
	agentKey := "agent:" + name

	response, err := that.client.Get(ctx, agentKey).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, ErrAgentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get agent by name: %w", err)
	}

	var snapshot qlearning.Snapshot
	if err = json.Unmarshal(response, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}

	return &snapshot, nil
}

func (that *dbAgent) DeleteByName(ctx context.Context, name string) error {
	agentKey := "agent:" + name

	deleted, err := that.client.Del(ctx, agentKey).Result()
	if err != nil {
		return fmt.Errorf("failed to delete agent by name: %w", err)
	}

	if deleted == 0 {
		return ErrAgentNotFound
	}

	return nil
}
