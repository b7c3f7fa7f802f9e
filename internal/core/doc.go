// Package core couples the physics packages into a single pressurized
// water reactor plant model.
//
// [Reactor] owns the coupling: point kinetics drives the power rails,
// the power rails drive coolant and fuel temperatures, temperatures
// feed back into reactivity through [reactivity.Feedback], and rods,
// boron and xenon close the loop. One call to [Reactor.Step] advances
// everything by a tick and returns a [Snapshot].
//
// The tick order matters and is fixed: reactivity is evaluated from
// start of tick rod positions and temperatures, kinetics advances in
// sub steps inside the solver's stable region, then thermal state, rod
// motion, xenon and the trip comparators follow on the full tick.
//
// Initial conditions come in three flavors: cold shutdown (the
// construction state), hot zero power, and steady equilibrium at a
// power fraction. The equilibrium lineups solve boron so the plant
// holds exactly critical until something is touched.
//
// Protective action is latched: once any trip comparator fires, rod
// drives are released for gravity drop and every command is rejected
// until [Reactor.ResetTrip] succeeds.
package core
