package input

type Options struct {
	JSON      bool // force JSON body (explicit --json)
	Form      bool // serialize body as application/x-www-form-urlencoded
	Multipart bool // serialize body as multipart/form-data even without files
	ReadStdin bool // stdin is redirected and should become the request body
}
