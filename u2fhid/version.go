package u2fhid

import "github.com/blang/semver"

// DeviceVersion is the MAJ/MIN/BUILD triple CMD_INIT's response embeds
// (spec.md §4.4), represented with semver.Version the same way
// version_darwin.go tracks CURRENT_VERSION for the host-side client.
var DeviceVersion = semver.MustParse("1.0.0")

// versionBytes packs DeviceVersion down to the three bytes the U2FHID
// wire format expects, clamping any component above 255 — the protocol
// has no room for more.
func versionBytes() (maj, min, build byte) {
	return clampByte(DeviceVersion.Major), clampByte(DeviceVersion.Minor), clampByte(DeviceVersion.Patch)
}

func clampByte(v uint64) byte {
	if v > 255 {
		return 255
	}
	return byte(v)
}
