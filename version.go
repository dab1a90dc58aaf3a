package lintbridge

// Version is the lintbridge release version. It is baked into the default
// cache identifier so that upgrading lintbridge invalidates stale entries.
const Version = "0.3.1"

// minEngineVersion is the oldest ESLint release the exec provider accepts.
// Older engines lack --stdin-filename semantics the bridge relies on.
const minEngineVersion = "v7.0.0"
