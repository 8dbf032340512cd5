// Package binary downloads a release asset and installs it as an
// executable.
//
// # Install sequence
//
// Installs into one directory are serialized by a ".<tool>.lock" file there.
//
//  1. Download the asset into a temporary file inside the install directory,
//     so the final rename never crosses a filesystem boundary.
//  2. Verify it against whatever the release publishes next to it:
//     a .sha256 file or a SHA256SUMS/checksums.txt manifest, an OpenPGP
//     .asc/.sig detached signature, a .minisig minisign signature.
//     Signatures are checked only when a key is configured, and a configured
//     key makes its signature mandatory.
//  3. Extract the tool from .zip or .tar.gz assets.
//  4. Set the executable bits and rename over the target path.
//
// A failure at any step removes the temporary file and leaves the existing
// install untouched.
//
// # Usage
//
//	inst, err := binary.NewInstaller(binary.Config{
//	    InstallDir: "/usr/bin",
//	    Tool:       "zbcli",
//	    HTTPClient: http.DefaultClient,
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := inst.Install(ctx, rel, asset)
package binary
