package agora

import "encoding/base64"

// BasicAuth builds the Authorization header value for the provider's REST
// API from the customer key/secret pair. The pair is not pre-validated; a
// bad secret is the upstream's authentication error to report, not ours.
func BasicAuth(customerID, customerSecret string) string {
	credentials := customerID + ":" + customerSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
