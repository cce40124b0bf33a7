package constants

const (
	APPNAME = "skein"

	EnvLogLevel = "SKEIN_LOG_LEVEL"
	EnvDebug    = "SKEIN_DEBUG"

	WorkspaceFileName = APPNAME + ".toml"
)
