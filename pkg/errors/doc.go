// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "command execution timed out",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "command": "kubectl get pods",
//	        "cluster": clusterName,
//	    },
//	)
package errors
