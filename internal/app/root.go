package app

// ExecuteSnapshot runs the npm-snapshot command.
func ExecuteSnapshot() error {
	return SnapshotCmd.Execute()
}

// ExecutePublish runs the npm-publish command.
func ExecutePublish() error {
	return PublishCmd.Execute()
}
