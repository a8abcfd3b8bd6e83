// Package mcp exposes the capture engine and diagnostics extractor to AI
// assistants over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xcwatch/xcwatch/internal/capture"
	"github.com/xcwatch/xcwatch/internal/devices"
	"github.com/xcwatch/xcwatch/internal/diag"
	"github.com/xcwatch/xcwatch/internal/project"
	"github.com/xcwatch/xcwatch/internal/version"
	"github.com/xcwatch/xcwatch/pkg/export"
)

// Deps are the collaborators the MCP tools drive.
type Deps struct {
	Engine        *capture.Engine
	Devices       *devices.Lister
	Extractor     *diag.Extractor
	Locator       *project.Locator
	Watcher       *project.BuildWatcher
	Sink          export.Sink
	CollectWindow time.Duration
}

// Server wires the MCP tool surface over the capture and diagnostics
// layers.
type Server struct {
	server *server.MCPServer
	deps   Deps
}

// NewServer builds the MCP server and registers every tool.
func NewServer(deps Deps) *Server {
	if deps.CollectWindow <= 0 {
		deps.CollectWindow = devices.DefaultCollectWindow
	}

	s := server.NewMCPServer(
		"xcwatch",
		version.Version,
		server.WithLogging(),
	)

	ms := &Server{server: s, deps: deps}
	ms.registerTools()
	return ms
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	// Build diagnostics
	s.server.AddTool(mcp.NewTool("get_build_errors",
		mcp.WithDescription("Get current build errors and warnings from the most recent Xcode build."),
		mcp.WithString("project", mcp.Description("Project name (defaults to the most recently built)")),
		mcp.WithString("severity", mcp.Description("Filter by severity: error, warning, or note")),
	), s.handleGetBuildErrors)

	s.server.AddTool(mcp.NewTool("get_live_build_errors",
		mcp.WithDescription("Get build errors captured from the live log stream (requires build monitoring)."),
		mcp.WithNumber("since_minutes", mcp.Description("Only include errors from the last N minutes (default 5)")),
	), s.handleGetLiveBuildErrors)

	s.server.AddTool(mcp.NewTool("analyze_project",
		mcp.WithDescription("Analyze a project's newest archived build log: status, severity counts, and common issue groups."),
		mcp.WithString("project_name", mcp.Description("Name of the project to analyze"), mcp.Required()),
	), s.handleAnalyzeProject)

	s.server.AddTool(mcp.NewTool("read_project_file",
		mcp.WithDescription("Read a source file referenced by build diagnostics."),
		mcp.WithString("file_path", mcp.Description("Path to the file to read"), mcp.Required()),
	), s.handleReadProjectFile)

	s.server.AddTool(mcp.NewTool("watch_builds",
		mcp.WithDescription("Start watching for completed Xcode builds and report their diagnostics."),
	), s.handleWatchBuilds)

	s.server.AddTool(mcp.NewTool("stop_watching_builds",
		mcp.WithDescription("Stop the build watcher."),
	), s.handleStopWatchingBuilds)

	// Console capture
	s.server.AddTool(mcp.NewTool("start_monitoring",
		mcp.WithDescription("Start continuous log capture. Modes: global, app, build, file."),
		mcp.WithString("mode", mcp.Description("Capture mode (default: global)")),
		mcp.WithString("bundle_id", mcp.Description("App bundle identifier (app mode, optional for global)")),
		mcp.WithString("project", mcp.Description("Project name (build mode)")),
		mcp.WithString("file_path", mcp.Description("Log file to follow (file mode)")),
	), s.handleStartMonitoring)

	s.server.AddTool(mcp.NewTool("start_device_monitoring",
		mcp.WithDescription("Start streaming a simulator's log by UDID."),
		mcp.WithString("udid", mcp.Description("Simulator UDID"), mcp.Required()),
		mcp.WithString("bundle_id", mcp.Description("Restrict to one app's output")),
	), s.handleStartDeviceMonitoring)

	s.server.AddTool(mcp.NewTool("start_device_debug_monitoring",
		mcp.WithDescription("Start streaming host-side debug output for a connected device."),
		mcp.WithString("device_name", mcp.Description("Device name as shown in Xcode"), mcp.Required()),
		mcp.WithString("bundle_id", mcp.Description("Restrict to one app's output")),
	), s.handleStartDeviceDebugMonitoring)

	s.server.AddTool(mcp.NewTool("stop_monitoring",
		mcp.WithDescription("Stop the active log capture session."),
	), s.handleStopMonitoring)

	s.server.AddTool(mcp.NewTool("get_console_logs",
		mcp.WithDescription("Read and consume buffered console logs from the active capture session."),
		mcp.WithNumber("count", mcp.Description("Maximum records to return (default 50)")),
		mcp.WithString("level", mcp.Description("Filter by level: debug, info, warning, error, fault")),
		mcp.WithString("filter_text", mcp.Description("Only records whose message contains this text")),
		mcp.WithString("filter_expr", mcp.Description(`Boolean expression over level, process, subsystem, category, message (e.g. level == "error" && process == "Xcode")`)),
	), s.handleGetConsoleLogs)

	s.server.AddTool(mcp.NewTool("get_error_logs",
		mcp.WithDescription("Read and consume buffered error and fault records from Xcode-related processes."),
		mcp.WithNumber("since_minutes", mcp.Description("Only include errors from the last N minutes (default 10)")),
	), s.handleGetErrorLogs)

	// Devices
	s.server.AddTool(mcp.NewTool("get_connected_devices",
		mcp.WithDescription("List iOS simulators and physical devices visible to this Mac."),
	), s.handleGetConnectedDevices)

	s.server.AddTool(mcp.NewTool("get_device_logs",
		mcp.WithDescription("Get recent log output from a simulator."),
		mcp.WithString("udid", mcp.Description("Simulator UDID"), mcp.Required()),
		mcp.WithNumber("count", mcp.Description("Maximum records to return (default 100)")),
		mcp.WithNumber("since_minutes", mcp.Description("How far back to look (default 10)")),
	), s.handleGetDeviceLogs)

	s.server.AddTool(mcp.NewTool("get_device_debug_logs",
		mcp.WithDescription("Collect debug-level logs from a simulator over a short window."),
		mcp.WithString("udid", mcp.Description("Simulator UDID"), mcp.Required()),
		mcp.WithString("bundle_id", mcp.Description("Restrict to one app's output")),
		mcp.WithNumber("count", mcp.Description("Maximum records to return (default 100)")),
	), s.handleGetDeviceDebugLogs)

	s.server.AddTool(mcp.NewTool("get_device_debug_logs_from_xcode",
		mcp.WithDescription("Get debug output Xcode mirrored to the host for a connected physical device."),
		mcp.WithString("device_name", mcp.Description("Device name as shown in Xcode"), mcp.Required()),
		mcp.WithString("bundle_id", mcp.Description("Restrict to one app's output")),
		mcp.WithNumber("count", mcp.Description("Maximum records to return (default 100)")),
		mcp.WithNumber("since_minutes", mcp.Description("How far back to look (default 10)")),
	), s.handleGetDeviceDebugLogsFromXcode)

	s.server.AddTool(mcp.NewTool("save_device_logs",
		mcp.WithDescription("Collect a simulator's recent logs and save them to a file."),
		mcp.WithString("udid", mcp.Description("Simulator UDID"), mcp.Required()),
		mcp.WithString("device_name", mcp.Description("Label used in the saved file name")),
	), s.handleSaveDeviceLogs)

	// Projects
	s.server.AddTool(mcp.NewTool("list_recent_projects",
		mcp.WithDescription("List recently built Xcode projects, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum projects to return (default 10)")),
	), s.handleListRecentProjects)
}

func (s *Server) handleGetBuildErrors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectName := request.GetString("project", "")
	severity := request.GetString("severity", "")

	diags := s.deps.Extractor.CurrentDiagnostics(ctx, projectName)
	if severity != "" {
		diags = filterSeverity(diags, diag.Severity(severity))
	}
	if len(diags) == 0 {
		return mcp.NewToolResultText("No build issues found. The last build appears clean."), nil
	}
	return mcp.NewToolResultText(formatDiagnostics(diags)), nil
}

func (s *Server) handleGetLiveBuildErrors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.deps.Engine.Active() {
		return mcp.NewToolResultError("No capture session is running. Start one with start_monitoring (mode: build) first."), nil
	}
	since := time.Now().Add(-time.Duration(request.GetFloat("since_minutes", 5)) * time.Minute)

	records := capture.FilterSince(capture.BuildErrors(s.deps.Engine.Recent(0)), since)
	if len(records) == 0 {
		return mcp.NewToolResultText("No build errors captured in the window."), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

func (s *Server) handleAnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectName, err := request.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, analyzeErr := s.deps.Extractor.AnalyzeBuildLog(ctx, projectName)
	if analyzeErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("No build logs found for project %s: %v", projectName, analyzeErr)), nil
	}
	return mcp.NewToolResultText(formatAnalysis(result)), nil
}

func (s *Server) handleReadProjectFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, statErr := os.Stat(filePath)
	if statErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("File not found: %s", filePath)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("Path is a directory: %s", filePath)), nil
	}

	content, readErr := os.ReadFile(filePath)
	if readErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot read %s: %v", filePath, readErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("File: %s\n\n%s", filePath, content)), nil
}

func (s *Server) handleWatchBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Watcher == nil {
		return mcp.NewToolResultError("Build watching is not available."), nil
	}
	if err := s.deps.Watcher.Start(ctx, 10); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start build watcher: %v", err)), nil
	}
	return mcp.NewToolResultText("Watching for completed builds. Diagnostics will be logged as builds finish."), nil
}

func (s *Server) handleStopWatchingBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Watcher != nil {
		s.deps.Watcher.Stop()
	}
	return mcp.NewToolResultText("Build watcher stopped."), nil
}

func (s *Server) handleStartMonitoring(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := capture.Mode(request.GetString("mode", string(capture.ModeGlobal)))
	params := capture.Params{
		BundleID:    request.GetString("bundle_id", ""),
		ProjectName: request.GetString("project", ""),
		FilePath:    request.GetString("file_path", ""),
	}

	if err := s.deps.Engine.Start(ctx, mode, params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start capture: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started %s log capture. Use get_console_logs to read buffered records.", mode)), nil
}

func (s *Server) handleStartDeviceMonitoring(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	udid, err := request.RequireString("udid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := capture.Params{
		DeviceUDID: udid,
		BundleID:   request.GetString("bundle_id", ""),
	}
	if err := s.deps.Engine.Start(ctx, capture.ModeDevice, params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start device capture: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started log capture for device %s.", udid)), nil
}

func (s *Server) handleStartDeviceDebugMonitoring(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("device_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := capture.Params{
		DeviceName: name,
		BundleID:   request.GetString("bundle_id", ""),
	}
	if err := s.deps.Engine.Start(ctx, capture.ModeDeviceDebug, params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start debug capture: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started debug log capture for %s.", name)), nil
}

func (s *Server) handleStopMonitoring(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.deps.Engine.Active() {
		return mcp.NewToolResultText("No capture session is running."), nil
	}
	mode := s.deps.Engine.Mode()
	s.deps.Engine.Stop()
	return mcp.NewToolResultText(fmt.Sprintf("Stopped %s log capture. Buffered records remain readable.", mode)), nil
}

func (s *Server) handleGetConsoleLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := int(request.GetFloat("count", 50))

	records := s.deps.Engine.Recent(count)
	records = capture.FilterLevel(records, levelArg(request))
	records = capture.FilterContains(records, request.GetString("filter_text", ""))

	if expression := request.GetString("filter_expr", ""); expression != "" {
		filtered, err := capture.FilterExpr(records, expression)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid filter expression: %v", err)), nil
		}
		records = filtered
	}

	if len(records) == 0 {
		return mcp.NewToolResultText("No matching console logs buffered."), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

func (s *Server) handleGetErrorLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	since := time.Now().Add(-time.Duration(request.GetFloat("since_minutes", 10)) * time.Minute)

	records := capture.ErrorLogs(s.deps.Engine.Recent(0), since)
	if len(records) == 0 {
		return mcp.NewToolResultText("No error or fault records buffered in the window."), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

func (s *Server) handleGetConnectedDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	found := s.deps.Devices.List(ctx)
	if len(found) == 0 {
		return mcp.NewToolResultText("No iOS devices or simulators found."), nil
	}
	return mcp.NewToolResultText(formatDevices(found)), nil
}

func (s *Server) handleGetDeviceLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	udid, err := request.RequireString("udid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := int(request.GetFloat("count", 100))
	window := showWindow(request)

	records := s.deps.Devices.Logs(ctx, udid, count, window)
	if len(records) == 0 {
		return mcp.NewToolResultText("No recent logs for that device."), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

// showWindow reads the since_minutes argument for the one-shot `log show`
// retrievals. The collect window tunable only paces streamed collections.
func showWindow(request mcp.CallToolRequest) time.Duration {
	return time.Duration(request.GetFloat("since_minutes", devices.DefaultShowWindow.Minutes())) * time.Minute
}

func (s *Server) handleGetDeviceDebugLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	udid, err := request.RequireString("udid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := int(request.GetFloat("count", 100))
	bundleID := request.GetString("bundle_id", "")

	records := s.deps.Devices.DebugLogs(ctx, udid, bundleID, count, s.deps.CollectWindow)
	if len(records) == 0 {
		return mcp.NewToolResultText("No debug output collected. Is the app running on that device?"), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

func (s *Server) handleGetDeviceDebugLogsFromXcode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("device_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := int(request.GetFloat("count", 100))
	bundleID := request.GetString("bundle_id", "")

	records := s.deps.Devices.HostDebugLogs(ctx, name, bundleID, count, showWindow(request))
	if len(records) == 0 {
		return mcp.NewToolResultText("No mirrored debug output found. Is the device attached to a running Xcode debug session?"), nil
	}
	return mcp.NewToolResultText(formatRecords(records)), nil
}

func (s *Server) handleSaveDeviceLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	udid, err := request.RequireString("udid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label := request.GetString("device_name", udid)

	records := s.deps.Devices.Logs(ctx, udid, 0, devices.DefaultShowWindow)
	if len(records) == 0 {
		return mcp.NewToolResultText("No logs to save for that device."), nil
	}

	path, err := s.deps.Sink.Write(label, records)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save logs: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %d records to %s", len(records), path)), nil
}

func (s *Server) handleListRecentProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", 10))

	names := s.deps.Locator.RecentProjects(limit)
	if len(names) == 0 {
		return mcp.NewToolResultText("No recently built projects found in DerivedData."), nil
	}
	return mcp.NewToolResultText(formatProjects(names)), nil
}
