package snapshot

// FinalPath and ChunkedPath implement the literal output-filename contract
// for the results snapshot: `<output stem>.SuperNovoResultList.ser.gz` for
// the completed run, and the same name suffixed `_CHUNKED` for the periodic
// in-progress checkpoint.
func FinalPath(outputStem string) string {
	return outputStem + ".SuperNovoResultList.ser.gz"
}

// ChunkedPath returns the periodic checkpoint path for outputStem.
func ChunkedPath(outputStem string) string {
	return FinalPath(outputStem) + "_CHUNKED"
}
