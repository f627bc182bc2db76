package params

// testingT is the subset of *testing.T used here, avoiding an import of
// "testing" from non-test code.
type testingT interface {
	Cleanup(func())
}

// SetupTestConfigCleanup snapshots the current global config, and restores it
// when the test completes. Tests that mutate params.BeaconConfig() (for
// example to shrink SecondsPerSlot to 400ms) should call this first.
func SetupTestConfigCleanup(t testingT) {
	prev := beaconConfig
	prevValues := *beaconConfig
	t.Cleanup(func() {
		*prev = prevValues
		beaconConfig = prev
	})
}
