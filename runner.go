package redis

// Runner is the minimal surface a module façade needs: send one command,
// get back one reply. Client, ReplicationClient and Cluster all satisfy it,
// so a façade built against Runner works unmodified on top of any of the
// three front-ends.
type Runner interface {
	Run(cmd Command) (Value, error)
}
