// Package reconcile decides and applies the writes that bring a remote
// bitable in line with a set of source rows.
//
// A run goes through three steps:
//
// 1. Schema: ResolveSchema classifies the remote fields. Relation fields are
// recognised by their related-table id first and by the declared type code
// only as a fallback. Multi relations are never written.
//
// 2. Plan: Reconciler.Plan merges each row's zones, injects the identity
// key, coerces number fields, resolves single relations through a LinkCache
// and compares the result with the existing record of the same key. Rows
// that match are counted as unchanged and get no write.
//
// 3. Apply: ApplyPlan writes creates and updates in chunks of up to 500.
// When a batch call fails the chunk is retried record by record, so one bad
// row costs one error. Relation fields are written afterwards with one
// update per field.
//
// # Usage Example
//
//	schema := reconcile.ResolveSchema(fields)
//	links := reconcile.BuildLinkCache(ctx, client, schema, reconcile.DefaultRenames(), log)
//	r := reconcile.NewReconciler(reconcile.Spec{
//	    Schema:   schema,
//	    Links:    links,
//	    Identity: flush.IdentityKey,
//	    Renames:  reconcile.DefaultRenames(),
//	}, log)
//
//	plan := r.Plan(sheet.Rows, reconcile.IndexRecords(records, reconcile.DefaultKeyField))
//	res, err := reconcile.ApplyPlan(ctx, client, plan, reconcile.ApplyOptions{TableID: tableID}, log)
package reconcile
