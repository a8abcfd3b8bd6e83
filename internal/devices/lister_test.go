package devices

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xcerrors "github.com/xcwatch/xcwatch/pkg/errors"
)

// scriptedRunner returns canned output keyed on a distinguishing argv token.
type scriptedRunner struct {
	responses map[string]string
	errs      map[string]error
	calls     [][]string
}

func (s *scriptedRunner) lookup(argv []string) (string, error) {
	s.calls = append(s.calls, argv)
	joined := strings.Join(argv, " ")
	for key, out := range s.responses {
		if strings.Contains(joined, key) {
			return out, nil
		}
	}
	for key, err := range s.errs {
		if strings.Contains(joined, key) {
			return "", err
		}
	}
	return "", xcerrors.ErrToolNotFound
}

func (s *scriptedRunner) Output(_ context.Context, argv []string) (string, error) {
	return s.lookup(argv)
}

func (s *scriptedRunner) Combined(_ context.Context, argv []string) (string, error) {
	return s.lookup(argv)
}

const simctlJSON = `{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-17-2": [
      {"name": "iPhone 15", "udid": "SIM-UDID-1", "state": "Booted", "productType": "iPhone16,1"},
      {"name": "iPad Pro", "udid": "SIM-UDID-2", "state": "Shutdown", "productType": "iPad14,3"}
    ],
    "com.apple.CoreSimulator.SimRuntime.watchOS-10-2": [
      {"name": "Apple Watch", "udid": "SIM-UDID-3", "state": "Shutdown", "productType": "Watch7,1"}
    ]
  }
}`

const devicectlOut = `Name       Hostname   Identifier   State      Model
Dev-iPhone local      DEV-UDID-1   connected  iPhone 15 Pro
BuildMac   local      MAC-UDID-1   connected  MacBook Pro
`

const usbJSON = `{
  "SPUSBDataType": [
    {
      "_name": "USB Bus",
      "_items": [
        {"_name": "iPhone", "vendor_id": "0x05ac", "product_id": "0x12a8"},
        {"_name": "Keyboard", "vendor_id": "0x1234", "product_id": "0x0001"}
      ]
    }
  ]
}`

func TestListConcatenatesProbes(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{
		"simctl list":    simctlJSON,
		"devicectl list": devicectlOut,
		"SPUSBDataType":  usbJSON,
	}}
	l := NewLister(run)

	devs := l.List(context.Background())
	require.Len(t, devs, 4, "2 simulators + 1 devicectl + 1 usb")

	var kinds []string
	for _, d := range devs {
		kinds = append(kinds, d.Kind)
	}
	assert.ElementsMatch(t, []string{KindSimulator, KindSimulator, KindPhysical, KindPhysical}, kinds)
}

func TestListSimulatorsFiltersRuntime(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"simctl list": simctlJSON}}
	devs, err := NewLister(run).listSimulators(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 2, "watchOS runtime excluded")

	for _, d := range devs {
		assert.Equal(t, KindSimulator, d.Kind)
		assert.Contains(t, d.Runtime, "iOS")
		assert.NotEmpty(t, d.UDID)
	}
}

func TestListDevicectlSkipsHeaderAndNonMobile(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"devicectl list": devicectlOut}}
	devs, err := NewLister(run).listDevicectl(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "Dev-iPhone", devs[0].Name)
	assert.Equal(t, "DEV-UDID-1", devs[0].UDID)
	assert.Equal(t, "connected", devs[0].State)
	assert.Equal(t, "iPhone 15 Pro", devs[0].ProductID)
}

func TestListUSBRecursesAndFilters(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"SPUSBDataType": usbJSON}}
	devs, err := NewLister(run).listUSB(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "iPhone", devs[0].Name)
	assert.Empty(t, devs[0].UDID, "USB probe has no UDID")
	assert.Equal(t, "connected", devs[0].State)
}

func TestListNoDeduplication(t *testing.T) {
	// The same physical device visible to devicectl and USB stays twice.
	run := &scriptedRunner{responses: map[string]string{
		"devicectl list": "Header\niPhone local SAME-UDID connected iPhone 15\n",
		"SPUSBDataType":  `{"SPUSBDataType":[{"_name":"iPhone","vendor_id":"0x05ac","product_id":"0x12a8"}]}`,
	}}
	devs := NewLister(run).List(context.Background())
	require.Len(t, devs, 2)
}

func TestListAllProbesFailSoft(t *testing.T) {
	run := &scriptedRunner{}
	devs := NewLister(run).List(context.Background())
	assert.Empty(t, devs)
	assert.Len(t, run.calls, 3, "every probe still attempted")
}

func TestDeviceLogs(t *testing.T) {
	out := "2024-01-15 10:30:00.100-0500 host MyApp[1]: first\n" +
		"garbage line\n" +
		"2024-01-15 10:30:01.200-0500 host MyApp[1]: second\n" +
		"2024-01-15 10:30:02.300-0500 host MyApp[1]: third\n"
	run := &scriptedRunner{responses: map[string]string{"log show": out}}

	records := NewLister(run).Logs(context.Background(), "UDID", 2, 10*time.Minute)
	require.Len(t, records, 2, "trimmed to the last N")
	assert.Equal(t, "second", records[0].Message)
	assert.Equal(t, "third", records[1].Message)
}

func TestShowRetrievalsDefaultToTenMinutes(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"log show": ""}}
	l := NewLister(run)

	l.Logs(context.Background(), "UDID", 0, 0)
	l.HostDebugLogs(context.Background(), "iPhone", "", 0, 0)

	require.Len(t, run.calls, 2)
	for _, call := range run.calls {
		assert.Contains(t, strings.Join(call, " "), "--last 10m")
	}
}

func TestDebugLogsTreatsDeadlineAsNormalExit(t *testing.T) {
	out := "2024-01-15 10:30:00.100-0500 host MyApp[1]: streamed\n"
	run := &scriptedRunner{responses: map[string]string{"log stream": out}}

	records := NewLister(run).DebugLogs(context.Background(), "UDID", "com.example.app", 100, 10*time.Millisecond)
	require.Len(t, records, 1)
	assert.Equal(t, "streamed", records[0].Message)
}

func TestHostDebugLogsUsesDebugPredicate(t *testing.T) {
	run := &scriptedRunner{responses: map[string]string{"log show": ""}}
	NewLister(run).HostDebugLogs(context.Background(), "iPhone", "com.example.app", 10, 10*time.Minute)

	require.Len(t, run.calls, 1)
	joined := strings.Join(run.calls[0], " ")
	assert.Contains(t, joined, "debugserver")
	assert.Contains(t, joined, "iPhone")
	assert.Contains(t, joined, "com.example.app")
}
