package main

// CreateBucket validates name, registers a fresh Bucket, and creates its
// on-disk directory tree including the reserved .sevino.meta subtree.
// Fails AlreadyExists if the name is already registered (spec.md §4.4).
func (e *Engine) CreateBucket(name string) (*Bucket, error) {
	if !isValidBucketName(name) {
		return nil, newErr(KindInvalidName, "invalid bucket name: "+name)
	}
	if _, ok := e.reg.getBucket(name); ok {
		return nil, newErr(KindAlreadyExists, "bucket already exists: "+name)
	}

	if err := e.layout.createBucketDir(name); err != nil {
		return nil, err
	}

	b := &Bucket{Name: name, CreatedAt: nowUTC(), Metadata: map[string]string{}}
	if err := e.layout.writeBucketMeta(b); err != nil {
		return nil, err
	}
	e.reg.registerBucket(b)
	return b, nil
}

// ListBuckets returns a registry snapshot in no particular order.
func (e *Engine) ListBuckets() []*Bucket {
	return e.reg.listBuckets()
}

// GetBucket resolves name via the registry, failing NotFound if absent.
func (e *Engine) GetBucket(name string) (*Bucket, error) {
	b, ok := e.reg.getBucket(name)
	if !ok {
		return nil, newErr(KindNotFound, "bucket not found: "+name)
	}
	return b, nil
}

// DeleteBucket removes name, failing NotFound if absent and NotEmpty if
// its key index is non-empty (spec.md invariant 5). The disk removal and
// registry unregistration are not required to be atomic with each other
// because the bucket is already empty under the invariant by the time we
// reach them.
func (e *Engine) DeleteBucket(name string) error {
	if _, ok := e.reg.getBucket(name); !ok {
		return newErr(KindNotFound, "bucket not found: "+name)
	}
	if e.reg.bucketObjectCount(name) > 0 {
		return newErr(KindNotEmpty, "bucket not empty: "+name)
	}

	if err := e.layout.removeBucketDir(name); err != nil {
		return err
	}
	e.reg.unregisterBucket(name)
	return nil
}
