// Package security builds client TLS settings for the outbound HTTP
// clients: the recognition sidecars and any self-hosted model endpoint
// behind a private CA or mutual TLS.
//
//	recognition:
//	  sidecar:
//	    whisper_url: https://whisper.internal:9000
//	    tls:
//	      ca_file: /etc/verbatim/ca.pem
//	      cert_file: /etc/verbatim/client.pem
//	      key_file: /etc/verbatim/client-key.pem
//	      min_version: "1.3"
package security
