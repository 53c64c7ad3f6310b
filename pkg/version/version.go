package version

// Version is the application version reported by the API and the startup log.
const Version = "v0.3.0"
