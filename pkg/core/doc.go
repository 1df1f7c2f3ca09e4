// Package core holds the domain model shared by every part of murmur: the
// syncable entity shape, the concrete record kinds, the storage-neutral
// document and the contracts local and remote stores must satisfy.
package core
