package syncer

import (
	"context"

	"github.com/testmytrinh/tmt-lms-backend/reconcile"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// FolderSaved reconciles a folder's owner and parent edges. A root folder
// has no parent, which syncs to an empty desired set and strips any stale
// parent tuple left from a move.
func (s *Syncer) FolderSaved(ctx context.Context, f Folder) error {
	objectKey := relation.Key(string(schema.TypeFolder), f.ID)

	var owners []string
	if f.OwnerID != "" {
		owners = []string{f.OwnerID}
	}
	written, deleted, err := reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeUser), string(schema.RelationOwner),
		owners,
	)
	if err != nil {
		return err
	}
	s.logSync("folder.owner", objectKey, written, deleted)

	var parents []string
	if f.ParentID != "" {
		parents = []string{f.ParentID}
	}
	written, deleted, err = reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeFolder), string(schema.RelationParent),
		parents,
	)
	if err != nil {
		return err
	}
	s.logSync("folder.parent", objectKey, written, deleted)
	return nil
}

// FolderDeleted removes the folder's tuples. Contained files and subfolders
// emit their own deletion events via the relational cascade.
func (s *Syncer) FolderDeleted(ctx context.Context, folderID string) error {
	objectKey := relation.Key(string(schema.TypeFolder), folderID)
	deleted, err := reconcile.DeleteAllForObject(ctx, s.client, objectKey)
	if err != nil {
		return err
	}
	s.logSync("folder.delete", objectKey, 0, deleted)
	return nil
}

// FileSaved reconciles a file's owner and containing-folder edges.
func (s *Syncer) FileSaved(ctx context.Context, f File) error {
	objectKey := relation.Key(string(schema.TypeFile), f.ID)

	var owners []string
	if f.OwnerID != "" {
		owners = []string{f.OwnerID}
	}
	written, deleted, err := reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeUser), string(schema.RelationOwner),
		owners,
	)
	if err != nil {
		return err
	}
	s.logSync("file.owner", objectKey, written, deleted)

	var parents []string
	if f.FolderID != "" {
		parents = []string{f.FolderID}
	}
	written, deleted, err = reconcile.SyncSingleTypeSubjects(
		ctx, s.client, objectKey,
		string(schema.TypeFolder), string(schema.RelationParent),
		parents,
	)
	if err != nil {
		return err
	}
	s.logSync("file.parent", objectKey, written, deleted)
	return nil
}

// FileDeleted removes the file's tuples.
func (s *Syncer) FileDeleted(ctx context.Context, fileID string) error {
	objectKey := relation.Key(string(schema.TypeFile), fileID)
	deleted, err := reconcile.DeleteAllForObject(ctx, s.client, objectKey)
	if err != nil {
		return err
	}
	s.logSync("file.delete", objectKey, 0, deleted)
	return nil
}
