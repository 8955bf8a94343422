// durables registers Durable Object classes and deploys them together
// with the worker that calls them.
//
//	CF_API_TOKEN=... go run ./cmd/durables deploy --config=config/deploy.yaml
//
// The worker and durable bundles are built beforehand (dist/worker.mjs,
// dist/durable.mjs); `durables entry` writes the durable bundle's entry
// module for that build.
package main

func main() {
	Execute()
}
