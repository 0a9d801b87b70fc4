// Package totalconnect is a client for the Total Connect home security
// service.
//
// A Client holds one authenticated session and mirrors the locations,
// partitions and zones of the account. Every call goes through
// [Client.Call], which renews the session token when it expires, retries
// transient failures with a fixed delay and maps vendor result codes to the
// sentinel errors of this package.
//
// The wire format is supplied by a [Transport]; package tc2 implements the
// vendor web service.
//
//	cli, err := totalconnect.New(ctx, tc2.New(tc2.DefaultBaseURL), totalconnect.Credentials{
//		Username:  "user",
//		Password:  "secret",
//		Usercodes: map[string]string{"default": "1234"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.LogOut(ctx)
//
//	for _, loc := range cli.Locations() {
//		if err := loc.Arm(ctx, totalconnect.ArmStay); err != nil {
//			log.Fatal(err)
//		}
//	}
package totalconnect
