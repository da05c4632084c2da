package analyses

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const valkeyKeyPrefix = "resume-analyzer:analysis:"

// ValkeyRepo stores analyses as JSON values that expire after TTL.
type ValkeyRepo struct {
	Client valkey.Client
	TTL    time.Duration
}

// NewValkeyClient connects to Valkey and verifies the connection with PING.
func NewValkeyClient(ctx context.Context, address, password string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Valkey client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Valkey: %w", err)
	}
	return client, nil
}

// Create stores the analysis under its ID.
func (r *ValkeyRepo) Create(ctx context.Context, analysis Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis id=%s: %w", analysis.ID, err)
	}
	key := valkeyKeyPrefix + analysis.ID
	value := string(payload)

	secs := int64(r.TTL / time.Second)
	if secs > 0 {
		err = r.Client.Do(ctx, r.Client.B().Set().Key(key).Value(value).ExSeconds(secs).Build()).Error()
	} else {
		err = r.Client.Do(ctx, r.Client.B().Set().Key(key).Value(value).Build()).Error()
	}
	if err != nil {
		return fmt.Errorf("valkey set analysis id=%s: %w", analysis.ID, err)
	}
	return nil
}

// GetByID returns the analysis, or ErrNotFound once it has expired.
func (r *ValkeyRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	raw, err := r.Client.Do(ctx, r.Client.B().Get().Key(valkeyKeyPrefix+analysisID).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, fmt.Errorf("valkey get analysis id=%s: %w", analysisID, err)
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis id=%s: %w", analysisID, err)
	}
	return a, nil
}

var _ Repo = (*ValkeyRepo)(nil)
