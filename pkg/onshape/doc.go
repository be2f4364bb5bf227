// Package onshape is a signed REST client for the Onshape API.
//
// Every request is authenticated with an HMAC-SHA256 signature computed over
// a canonical form of the request:
//
//	lower(method \n nonce \n date \n content-type \n path \n query \n)
//
// and sent as
//
//	Authorization: On {accessKey}:HmacSHA256:{base64 signature}
//
// together with the On-Nonce and Date headers used in the signature. The
// nonce and date are regenerated for every attempt.
//
// Calls that receive 429 Too Many Requests are retried up to MaxAttempts
// times. The sleep between attempts starts at InitialRateLimitSleep and is
// multiplied by RateLimitMultiplier after every 429; it is kept for the
// lifetime of the Client so that a client under sustained pressure stays
// slow. Any other failure is returned on first occurrence as *APIError.
//
// Credentials are read from a JSON file mapping stack names to a url, access
// key, secret key and optional company id:
//
//	client, err := onshape.NewClient(&onshape.Config{
//		CredentialsFile: "./credentials.json",
//		Stack:           "cad",
//		ScriptName:      "create-note",
//	})
//	if err != nil {
//		return err
//	}
//
//	var companies onshape.ListResponse[onshape.CompanyInfo]
//	err = client.Get(ctx, "/api/companies", &companies)
package onshape
