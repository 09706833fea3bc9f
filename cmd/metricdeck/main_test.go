package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/betbot/metricdeck/internal/carousel"
	"github.com/betbot/metricdeck/internal/domain"
	"github.com/betbot/metricdeck/pkg/config"
	"github.com/betbot/metricdeck/pkg/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainLine(t *testing.T) {
	c := carousel.New(config.SampleMetrics(), carousel.DefaultOptions())
	assert.Equal(t, "Deck [1/5] Workflow runs today: 12,845 runs ▲", plainLine("Deck", c.State()))

	empty := carousel.New(nil, carousel.DefaultOptions())
	assert.Equal(t, "Deck: No automation metrics to display", plainLine("Deck", empty.State()))

	single := carousel.New([]domain.Metric{{ID: "a", Label: "Queue", Value: domain.TextValue("idle")}}, carousel.DefaultOptions())
	assert.Equal(t, "Deck [1/1] Queue: idle", plainLine("Deck", single.State()))
}

func TestRunPlain_RotatesUntilCancelled(t *testing.T) {
	deck := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(deck, []byte(`title: Ops
interval_ms: 20
metrics:
  - id: a
    label: Alpha
    value: 1
  - id: b
    label: Beta
    value: 2
`), 0o644))
	cfg, err := config.LoadFromFile(deck)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, runPlain(ctx, cfg, &flags{}, shutdown.NewManager(), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "Ops [1/2] Alpha: 1", lines[0])
	assert.Equal(t, "Ops [2/2] Beta: 2", lines[1])
}
