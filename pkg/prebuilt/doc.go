// Package prebuilt provides opinionated, ready-made dashboard graph templates
// ("prebuilts") for common monitoring patterns such as per-channel plots,
// spectral views, and band power summaries. Each prebuilt exposes a simple
// configuration and returns a wired *graph.Graph that can be played with the
// default runtime or customized further.
package prebuilt
