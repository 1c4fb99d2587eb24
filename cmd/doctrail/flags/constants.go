package flags

const Verbose = `v`
const Quiet = `q`
const Plain = `p`
const ConfigFile = `config`
const SaveWithTimeSpent = `t`
const HistoryAsList = `flat`
const RestoreToFile = `o`
const RestoreWithForce = `force`
