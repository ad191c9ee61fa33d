// Package rule holds rule schemas, the process-wide registry that owns them,
// and the resolved instances consumers query for providers.
//
// The registry has two phases. During initialization, modules register Go
// implementations by name and manifests register schemas that point at
// those names; each schema is checked once, including its defaults and the
// compatibility of its declared providers with its implementation. Seal ends
// the phase. From then on the registry is read-only and safe for any number
// of concurrent readers.
package rule
