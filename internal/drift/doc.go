// Package drift implements nopea's post-deploy verification: manifest
// normalization (stripping cluster-managed and volatile fields),
// content hashing, and the three-way diff between what was last
// applied, what is now desired, and what is actually live.
package drift
