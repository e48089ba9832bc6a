package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/config"
	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/resolver"
)

func TestReloadConditionsUsesNewEndpoints(t *testing.T) {
	catalog, err := filter.NewCatalog(filter.Env{})
	require.NoError(t, err)
	static := resolver.NewStatic(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.GetDefaults()
	cfg.Filters.Endpoints = map[string]models.FieldShape{
		"quarter_field": {Type: models.FieldTypeSelect, Options: "Q1\nQ2\nQ3\nQ4"},
	}
	cfg.Filters.CustomConditions = []models.CustomCondition{
		{Key: "quarter", Label: "Quarter", ValidForFieldTypes: []models.FieldType{models.FieldTypeDate}, Endpoint: "quarter_field"},
		{Key: "season", Label: "Season", ValidForFieldTypes: []models.FieldType{models.FieldTypeDate}, Endpoint: "season_field"},
	}

	assert.Equal(t, 1, reloadConditions(catalog, static, false, cfg, logger))
	assert.True(t, catalog.Known("quarter"))
	assert.False(t, catalog.Known("season"))

	shape, err := static.Resolve(context.Background(), "quarter_field", nil)
	require.NoError(t, err)
	assert.Len(t, shape.Choices, 4)

	// A SQL resolver may know endpoints the static table does not
	assert.Equal(t, 1, reloadConditions(catalog, static, true, cfg, logger))
	assert.True(t, catalog.Known("season"))
}
