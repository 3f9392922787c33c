// Package toast provides one-shot user notifications for FoodIt screens.
//
// Screen state is persistent: a reconnecting client is sent the latest
// snapshot again. Toasts are not. A view-model pushes a Toast onto its Queue
// and whichever observer drains the queue first owns it; it is never
// replayed, so a failure message is not shown twice when a screen is
// rebuilt.
//
// # Server-Side Usage
//
// Reducers return toasts alongside the next state:
//
//	return store.Update[State, Event]{
//	    State:  prev,
//	    Toasts: []toast.Toast{toast.Error(resource.Message(kind))},
//	}
//
// The live transport drains the queue and forwards each toast to the client
// with Show, which emits an event named EventName:
//
//	for t := range queue.C() {
//	    toast.Show(session, t)
//	}
//
// # Client-Side Handler
//
//	socket.addEventListener("message", (e) => {
//	    const frame = JSON.parse(e.data);
//	    if (frame.type === "foodit:toast") showSnackbar(frame.data.message);
//	});
package toast
