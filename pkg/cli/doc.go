// Package cli implements the command-line interface for the kubechat tool.
//
// # Overview
//
// The kubechat CLI runs the chat assistant API server and provides the
// supporting operational commands: listing cluster contexts, building the
// knowledge base index, and minting auth tokens.
//
// # Commands
//
// serve - Run the API server:
//
//	kubechat serve [--config FILE] [--port PORT] [--data-dir DIR]
//
// clusters - List configured cluster contexts:
//
//	kubechat clusters [--config FILE] [--ping]
//
// index - Build the retrieval index offline:
//
//	kubechat index [--config FILE] [--data-dir DIR]
//
// token - Mint an auth token for a user:
//
//	kubechat token --user alice [--config FILE]
//
// version - Print version information.
//
// # Environment Variables
//
//	KUBECHAT_CONFIG          Config file path (same as --config)
//	KUBECHAT_DATA_DIR        Knowledge base directory
//	PORT                     HTTP server port
//	LOG_LEVEL                Logging verbosity (debug, info, warn, error)
//	JWT_SECRET_KEY           Token signing secret
//	CHATBOT_KUBECTL_PATH     kubectl executable path
//	CHATBOT_KUBECONFIG_PATH  kubeconfig for the default cluster
//	OLLAMA_HOST              Ollama base URL
//	GEMINI_API_KEY           Gemini API key
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//
// The CLI uses the urfave/cli/v3 framework and delegates to pkg/api for
// application assembly. Version information is embedded at build time:
//
//	go build -ldflags="-X 'github.com/kubechat/kubechat/pkg/cli.version=1.0.0'"
package cli
