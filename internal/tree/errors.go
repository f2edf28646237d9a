package tree

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrFolderNotFound   = errors.New("folder not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrCircularMove     = errors.New("cannot move folder into itself or its descendants")
	ErrInvalidArgument  = errors.New("invalid argument")
)
