package handler

// Route type
type Route string

const (
	// RouteDiskFileSystem manage disk file system backup targets
	RouteDiskFileSystem Route = "manageDsaDiskFileSystem"
	// RouteAWSS3 manage AWS S3 backup targets
	RouteAWSS3 Route = "manageAWSS3Operations"
	// RouteMediaServer manage media servers
	RouteMediaServer Route = "manageMediaServer"
)
