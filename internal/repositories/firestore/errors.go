package firestore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// notFoundErr builds a gRPC NotFound error so the platform wrapper
// categorises lookups that matched no document.
func notFoundErr(kind string, ref string) error {
	return status.Errorf(codes.NotFound, "%s %q not found", kind, ref)
}
