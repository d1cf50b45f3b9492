// Package api wires the kubechat application together and runs it.
//
// This package is the composition root: it loads configuration, builds the
// session store, cluster registry, execution gateway, language model client,
// retrieval index, and assistant, and hands the assembled assistant to
// pkg/server for HTTP serving.
//
// # Usage
//
// To start the API server:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "github.com/kubechat/kubechat/pkg/api"
//	)
//
//	func main() {
//	    cfg, err := api.LoadConfig("kubechat.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := api.Serve(context.Background(), cfg); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Configuration
//
// Configuration is read from a YAML file with environment overrides:
//   - PORT: HTTP server port (default: 8080)
//   - LOG_LEVEL: Logging level (debug, info, warn, error)
//   - JWT_SECRET_KEY: Token signing secret
//   - CHATBOT_KUBECTL_PATH: kubectl executable path
//   - CHATBOT_KUBECONFIG_PATH: kubeconfig for the default cluster
//   - OLLAMA_HOST: Ollama base URL
//   - GEMINI_API_KEY: Gemini API key (provider: gemini)
//   - KUBECHAT_DATA_DIR: knowledge base directory for retrieval
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/kubechat/kubechat/pkg/api.version=1.0.0'"
package api
