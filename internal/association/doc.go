// Package association matches reconstructed tracks to the simulated
// particles that produced them.
//
// Two strategies are provided. QuickHitAssociator compares which detector
// hits a track and a particle share. Chi2Associator compares the track's
// fitted parameters with the particle's parameters at the point of closest
// approach to the beam line, weighted by the track covariance.
//
// Both produce a RecoToSimMap and a SimToRecoMap: for every key, a ranked
// list of matches with a quality score where higher is better.
package association
