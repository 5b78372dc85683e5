package consts

const (
	HTTP_PORT int = 8080
	SOAP_PORT int = 8081
	SFTP_PORT int = 2022
)

// MAX_BODY_BYTES caps every SOAP request or response body read into memory.
const MAX_BODY_BYTES int64 = 16 << 20

const (
	SOAP12_NAMESPACE = "http://www.w3.org/2003/05/soap-envelope"
	SOAP11_NAMESPACE = "http://schemas.xmlsoap.org/soap/envelope/"

	// CSFE request/response namespaces
	ZIMBRA_NAMESPACE  = "urn:zimbra"
	ACCOUNT_NAMESPACE = "urn:zimbraAccount"
	ADMIN_NAMESPACE   = "urn:zimbraAdmin"

	SOAP_PATH = "/service/soap"
)
