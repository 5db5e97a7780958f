package ir

// ToolVersion is the abidiff version, reported by --version.
const ToolVersion = "0.1.0"
