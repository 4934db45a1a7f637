package version

// Version is stamped by the release workflow. The -dev suffix marks
// binaries built from an unreleased tree.
const Version = "v1.1.0-dev"
