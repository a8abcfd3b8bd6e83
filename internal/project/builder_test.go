package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

const listOutput = `Information about project "MyApp":
    Targets:
        MyApp
        MyAppTests

    Build Configurations:
        Debug
        Release

    Schemes:
        MyApp
        MyApp-Staging
`

func TestListSchemes(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"-list": listOutput}}
	b := NewBuilder(run)

	schemes, err := b.ListSchemes(context.Background(), "/work/MyApp.xcodeproj")
	require.NoError(t, err)
	assert.Equal(t, []string{"MyApp", "MyApp-Staging"}, schemes)
}

func TestListSchemesEmpty(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"-list": "Information about project\n"}}
	b := NewBuilder(run)

	_, err := b.ListSchemes(context.Background(), "/work/MyApp.xcodeproj")
	assert.ErrorIs(t, err, xcerrors.ErrNoSchemes)
}

func TestContainerFlag(t *testing.T) {
	assert.Equal(t, "-workspace", containerFlag("/work/MyApp.xcworkspace"))
	assert.Equal(t, "-project", containerFlag("/work/MyApp.xcodeproj"))
}

func TestDryRunArgs(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"xcodebuild": "ok"}}
	b := NewBuilder(run)

	_, err := b.DryRun(context.Background(), "/work/MyApp.xcworkspace", "MyApp")
	require.NoError(t, err)
	require.Len(t, run.calls, 1)
	assert.Contains(t, run.calls[0], "-dry-run")
	assert.Contains(t, run.calls[0], "-workspace")

	_, err = b.Build(context.Background(), "/work/MyApp.xcodeproj", "MyApp")
	require.NoError(t, err)
	require.Len(t, run.calls, 2)
	assert.Contains(t, run.calls[1], "build")
	assert.Contains(t, run.calls[1], "-project")
}
